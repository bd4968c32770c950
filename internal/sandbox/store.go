package sandbox

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kingrea/orgdesk/internal/orgapi"
)

var (
	// ErrDuplicateName reports a case-insensitive name collision.
	ErrDuplicateName = errors.New("Name already exists")
	// ErrNotFound reports an unknown organization id.
	ErrNotFound = errors.New("Organization not found")
)

// NewOrganization is the validated create payload.
type NewOrganization struct {
	Name         string `json:"name" validate:"required,max=200"`
	ContactName  string `json:"contact_name" validate:"required,max=200"`
	ContactEmail string `json:"contact_email" validate:"required,email"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return jsonName(field.Tag.Get("json"))
	})
	return v
}

// Validate trims the payload and reports the first invalid field.
func (n *NewOrganization) Validate() error {
	n.Name = strings.TrimSpace(n.Name)
	n.ContactName = strings.TrimSpace(n.ContactName)
	n.ContactEmail = strings.TrimSpace(n.ContactEmail)
	err := validate.Struct(n)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", fe.Field())
	case "email":
		return fmt.Errorf("%s must be a valid email address", fe.Field())
	case "max":
		return fmt.Errorf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Errorf("%s is invalid", fe.Field())
	}
}

// Store keeps organizations in memory.
type Store struct {
	mu    sync.RWMutex
	orgs  []orgapi.Organization
	index map[string]int
	names map[string]string
	clock func() time.Time
	newID func() string
}

// StoreOption customizes store construction.
type StoreOption func(*Store)

// WithStoreClock controls created_at stamps.
func WithStoreClock(clock func() time.Time) StoreOption {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator overrides uuid ids.
func WithIDGenerator(gen func() string) StoreOption {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// NewStore returns an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		index: make(map[string]int),
		names: make(map[string]string),
		clock: func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Create validates and stores a new organization.
func (s *Store) Create(in NewOrganization) (orgapi.Organization, error) {
	if err := in.Validate(); err != nil {
		return orgapi.Organization{}, err
	}
	key := strings.ToLower(in.Name)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.names[key]; exists {
		return orgapi.Organization{}, ErrDuplicateName
	}
	org := orgapi.Organization{
		ID:           orgapi.ID(s.newID()),
		Name:         in.Name,
		ContactName:  in.ContactName,
		ContactEmail: in.ContactEmail,
		CreatedAt:    s.clock().UTC().Format(time.RFC3339),
	}
	s.index[string(org.ID)] = len(s.orgs)
	s.names[key] = string(org.ID)
	s.orgs = append(s.orgs, org)
	return org, nil
}

// List returns organizations in creation order.
func (s *Store) List() []orgapi.Organization {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]orgapi.Organization, len(s.orgs))
	copy(out, s.orgs)
	return out
}

// Get looks up an organization by id.
func (s *Store) Get(id string) (orgapi.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.index[id]
	if !ok {
		return orgapi.Organization{}, ErrNotFound
	}
	return s.orgs[idx], nil
}

// Len reports the number of stored organizations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orgs)
}

func jsonName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}
