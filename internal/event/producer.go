package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/CompanyDirectory/internal/domain"
	pkgkafka "github.com/utafrali/CompanyDirectory/pkg/kafka"
	"github.com/utafrali/CompanyDirectory/pkg/logger"
)

// Event types, also used as the action part of the topic name.
const (
	TypeUserRegistered     = "user.registered"
	TypeUserEmailVerified  = "user.email_verified"
	TypeUserMobileVerified = "user.mobile_verified"
	TypeCompanyCreated     = "company.created"
	TypeCompanyUpdated     = "company.updated"
	TypeCompanyDeleted     = "company.deleted"
)

// Aggregate types.
const (
	AggregateUser    = "user"
	AggregateCompany = "company"
)

// Source identifies this service on every envelope.
const Source = "company-directory"

// Topics written by this service.
var (
	TopicUserRegistered     = pkgkafka.Topic(AggregateUser, "registered")
	TopicUserEmailVerified  = pkgkafka.Topic(AggregateUser, "email_verified")
	TopicUserMobileVerified = pkgkafka.Topic(AggregateUser, "mobile_verified")
	TopicCompanyCreated     = pkgkafka.Topic(AggregateCompany, "created")
	TopicCompanyUpdated     = pkgkafka.Topic(AggregateCompany, "updated")
	TopicCompanyDeleted     = pkgkafka.Topic(AggregateCompany, "deleted")
)

// UserRegisteredData is the payload for user.registered.
type UserRegisteredData struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Gender   string `json:"gender"`
}

// UserVerifiedData is the payload for user.email_verified and user.mobile_verified.
type UserVerifiedData struct {
	ID         string    `json:"id"`
	VerifiedAt time.Time `json:"verified_at"`
}

// CompanyData is the payload for company.created and company.updated.
type CompanyData struct {
	ID       string `json:"id"`
	OwnerID  string `json:"owner_id"`
	Name     string `json:"name"`
	Industry string `json:"industry,omitempty"`
	City     string `json:"city,omitempty"`
	Country  string `json:"country,omitempty"`
}

// CompanyDeletedData is the payload for company.deleted.
type CompanyDeletedData struct {
	ID        string `json:"id"`
	DeletedBy string `json:"deleted_by"`
}

// Publisher publishes domain events. Callers treat failures as non-fatal.
type Publisher interface {
	UserRegistered(ctx context.Context, u *domain.User) error
	UserEmailVerified(ctx context.Context, userID string) error
	UserMobileVerified(ctx context.Context, userID string) error
	CompanyCreated(ctx context.Context, c *domain.Company) error
	CompanyUpdated(ctx context.Context, c *domain.Company) error
	CompanyDeleted(ctx context.Context, companyID, deletedBy string) error
}

// EventWriter is satisfied by *pkgkafka.Producer.
type EventWriter interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes domain events to Kafka.
type Producer struct {
	writer EventWriter
	logger *slog.Logger
	now    func() time.Time
}

var _ Publisher = (*Producer)(nil)

// NewProducer creates a Kafka-backed event producer.
func NewProducer(writer EventWriter, logger *slog.Logger) *Producer {
	return &Producer{writer: writer, logger: logger, now: time.Now}
}

func (p *Producer) publish(ctx context.Context, topic, eventType, aggregateID, aggregateType string, data any) error {
	ev, err := pkgkafka.NewEvent(eventType, aggregateID, aggregateType, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		ev.WithCorrelationID(id)
	}

	if err := p.writer.Publish(ctx, topic, ev); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("event_type", eventType),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

// UserRegistered publishes user.registered.
func (p *Producer) UserRegistered(ctx context.Context, u *domain.User) error {
	return p.publish(ctx, TopicUserRegistered, TypeUserRegistered, u.ID, AggregateUser, UserRegisteredData{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Gender:   u.Gender,
	})
}

// UserEmailVerified publishes user.email_verified.
func (p *Producer) UserEmailVerified(ctx context.Context, userID string) error {
	return p.publish(ctx, TopicUserEmailVerified, TypeUserEmailVerified, userID, AggregateUser,
		UserVerifiedData{ID: userID, VerifiedAt: p.now().UTC()})
}

// UserMobileVerified publishes user.mobile_verified.
func (p *Producer) UserMobileVerified(ctx context.Context, userID string) error {
	return p.publish(ctx, TopicUserMobileVerified, TypeUserMobileVerified, userID, AggregateUser,
		UserVerifiedData{ID: userID, VerifiedAt: p.now().UTC()})
}

// CompanyCreated publishes company.created.
func (p *Producer) CompanyCreated(ctx context.Context, c *domain.Company) error {
	return p.publish(ctx, TopicCompanyCreated, TypeCompanyCreated, c.ID, AggregateCompany, companyData(c))
}

// CompanyUpdated publishes company.updated.
func (p *Producer) CompanyUpdated(ctx context.Context, c *domain.Company) error {
	return p.publish(ctx, TopicCompanyUpdated, TypeCompanyUpdated, c.ID, AggregateCompany, companyData(c))
}

// CompanyDeleted publishes company.deleted.
func (p *Producer) CompanyDeleted(ctx context.Context, companyID, deletedBy string) error {
	return p.publish(ctx, TopicCompanyDeleted, TypeCompanyDeleted, companyID, AggregateCompany,
		CompanyDeletedData{ID: companyID, DeletedBy: deletedBy})
}

func companyData(c *domain.Company) CompanyData {
	return CompanyData{
		ID:       c.ID,
		OwnerID:  c.OwnerID,
		Name:     c.Name,
		Industry: c.Industry,
		City:     c.City,
		Country:  c.Country,
	}
}

// Noop discards every event. It is used when Kafka is disabled.
type Noop struct{}

var _ Publisher = Noop{}

func (Noop) UserRegistered(context.Context, *domain.User) error { return nil }
func (Noop) UserEmailVerified(context.Context, string) error { return nil }
func (Noop) UserMobileVerified(context.Context, string) error { return nil }
func (Noop) CompanyCreated(context.Context, *domain.Company) error { return nil }
func (Noop) CompanyUpdated(context.Context, *domain.Company) error { return nil }
func (Noop) CompanyDeleted(context.Context, string, string) error { return nil }
