// Package services contains the server-side business logic. This file
// implements AuthService, which orchestrates sign-in and registration over
// the event log: reconstruction, uniqueness enforcement, credential
// verification, and idempotent batch commits.
package services

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/manis-auth/manis/internal/common"
	"github.com/manis-auth/manis/internal/logging"
	"github.com/manis-auth/manis/internal/server/auth"
	"github.com/manis-auth/manis/internal/server/eventlog"
	"github.com/manis-auth/manis/internal/server/hashing"
	"github.com/manis-auth/manis/internal/server/models"
	"github.com/manis-auth/manis/internal/server/users"
	"github.com/manis-auth/manis/internal/server/validation"
)

// ErrMissingIdempotencyKey reports a registration request submitted without a
// batch key. The transport layer is expected to supply one.
var ErrMissingIdempotencyKey = errors.New("missing idempotency key")

// CreateUser is one registration item. The password is process-local only and
// never persisted.
type CreateUser struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInRequest maps identity (login or email) to plaintext password.
type SignInRequest struct {
	SignIns map[string]string `json:"signIns"`
}

// SignInResponse carries a token per successful sign-in, keyed by the user's
// login, and one validation error per failed identity. Partial success is
// normal.
type SignInResponse struct {
	SignIns          map[string]string  `json:"signIns"`
	ValidationErrors []validation.Error `json:"validationErrors"`
}

// RegisterRequest is an ordered batch of create-user items plus the
// idempotency key covering the whole batch.
type RegisterRequest struct {
	CreateUsers    []CreateUser `json:"createUsers"`
	IdempotencyKey uuid.UUID    `json:"idempotencyKey"`
}

// RegisterResponse carries only the accumulated validation errors; a created
// item is marked by the absence of an error for it.
type RegisterResponse struct {
	ValidationErrors []validation.Error `json:"validationErrors"`
}

// AuthService composes the event log, reconstructor, validator, hashers, and
// token factory.
type AuthService struct {
	log        eventlog.Repository
	tokens     *auth.TokenFactory
	hashers    *hashing.Registry
	validator  *validation.FieldValidator
	logger     logging.Logger
	hashMethod string
}

// NewAuthService constructs an AuthService. hashMethod names the hash method
// used for new registrations; empty selects the default.
func NewAuthService(log eventlog.Repository, tokens *auth.TokenFactory, hashers *hashing.Registry,
	validator *validation.FieldValidator, logger logging.Logger, hashMethod string) *AuthService {

	if hashMethod == "" {
		hashMethod = hashing.DefaultMethod
	}

	return &AuthService{
		log:        log,
		tokens:     tokens,
		hashers:    hashers,
		validator:  validator,
		logger:     logger,
		hashMethod: hashMethod,
	}
}

// identityProperties are the two alternate uniqueness keys of a user.
var identityProperties = []string{models.PropertyLogin, models.PropertyEmail}

// SignIn verifies each identity/password pair independently and issues a
// token per verified identity. One bad identity does not block others.
func (s *AuthService) SignIn(ctx context.Context, req *SignInRequest) (*SignInResponse, error) {
	resp := &SignInResponse{
		SignIns:          make(map[string]string),
		ValidationErrors: make([]validation.Error, 0),
	}

	// identities are processed in sorted order so the error list is
	// deterministic regardless of map iteration
	identities := make([]string, 0, len(req.SignIns))
	for identity := range req.SignIns {
		identities = append(identities, identity)
	}
	sort.Strings(identities)

	matched, err := s.loadUsersByIdentity(ctx, identities)
	if err != nil {
		return nil, err
	}

	for _, identity := range identities {
		var candidates []models.User
		for _, u := range matched {
			if u.Login == identity || u.Email == identity {
				candidates = append(candidates, u)
			}
		}

		switch len(candidates) {
		case 0:
			resp.ValidationErrors = append(resp.ValidationErrors, validation.NewNotFound(identity))
			continue
		case 1:
		default:
			// the uniqueness guarantee makes this impossible; observing it
			// means the log is inconsistent
			return nil, fmt.Errorf("identity %q matches %d users: %w", identity, len(candidates), common.ErrorAmbiguousIdentity)
		}

		user := candidates[0]

		ok, err := s.verifyPassword(&user, req.SignIns[identity])
		if err != nil {
			return nil, err
		}
		if !ok {
			resp.ValidationErrors = append(resp.ValidationErrors, validation.NewInvalidPassword(identity))
			continue
		}

		token, err := s.tokens.Create(&user)
		if err != nil {
			return nil, fmt.Errorf("error issuing token: %w", err)
		}
		resp.SignIns[user.Login] = token
	}

	return resp, nil
}

// Register processes a batch of create-user items in request order and
// commits all resulting events atomically under the batch's idempotency key.
// Resubmitting a committed key returns the recorded response and writes
// nothing.
//
// Uniqueness against already committed users is checked before the commit,
// not enforced by the storage layer: two concurrent batches registering the
// same email can both pass the check and both commit. That race is accepted
// here; closing it takes a unique index or a compare-and-append at the
// storage layer.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error) {
	if req.IdempotencyKey == uuid.Nil {
		return nil, ErrMissingIdempotencyKey
	}

	if resp, err := s.findCommittedResponse(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	} else if resp != nil {
		s.logger.Info(ctx, "registration batch replayed", "key", req.IdempotencyKey.String())
		return resp, nil
	}

	identities := make([]string, 0, 2*len(req.CreateUsers))
	for _, item := range req.CreateUsers {
		identities = append(identities, item.Email, item.Login)
	}

	existing, err := s.loadUsersByIdentity(ctx, identities)
	if err != nil {
		return nil, err
	}

	resp := &RegisterResponse{ValidationErrors: make([]validation.Error, 0)}
	emittedDup := make(map[string]bool)
	var events []models.Event
	created := 0

	for i, item := range req.CreateUsers {
		fieldErrs, err := s.validateCreateUser(&item)
		if err != nil {
			return nil, err
		}
		if len(fieldErrs) > 0 {
			resp.ValidationErrors = append(resp.ValidationErrors, fieldErrs...)
			continue
		}

		if hasUserWith(existing, func(u *models.User) bool { return u.Email == item.Email }) {
			resp.ValidationErrors = append(resp.ValidationErrors, validation.NewAlreadyExists(item.Email))
			continue
		}

		if hasUserWith(existing, func(u *models.User) bool { return u.Login == item.Login }) {
			resp.ValidationErrors = append(resp.ValidationErrors, validation.NewAlreadyExists(item.Login))
			continue
		}

		// in-batch collisions: the first occurrence of a value wins, later
		// occurrences collide against it, and the error is emitted at most
		// once per distinct value
		if collidesInBatch(req.CreateUsers, i, func(u *CreateUser) string { return u.Email }) {
			if !emittedDup[item.Email] {
				emittedDup[item.Email] = true
				resp.ValidationErrors = append(resp.ValidationErrors, validation.NewDuplicateInBatch(item.Email))
			}
			continue
		}

		if collidesInBatch(req.CreateUsers, i, func(u *CreateUser) string { return u.Login }) {
			if !emittedDup[item.Login] {
				emittedDup[item.Login] = true
				resp.ValidationErrors = append(resp.ValidationErrors, validation.NewDuplicateInBatch(item.Login))
			}
			continue
		}

		user, err := s.newUser(&item)
		if err != nil {
			return nil, err
		}
		events = append(events, users.CreationEvents(user)...)
		created++
	}

	response, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("error encoding batch response: %w", err)
	}

	if err := s.log.CommitBatch(ctx, req.IdempotencyKey, response, events); err != nil {
		if errors.Is(err, common.ErrorBatchExists) {
			// lost a race against a concurrent submission of the same key;
			// the committed result is authoritative
			if stored, ferr := s.findCommittedResponse(ctx, req.IdempotencyKey); ferr == nil && stored != nil {
				return stored, nil
			}
		}
		return nil, fmt.Errorf("error committing batch: %w", err)
	}

	s.logger.Info(ctx, "registration batch committed",
		"key", req.IdempotencyKey.String(),
		"items", len(req.CreateUsers),
		"created", created,
	)

	return resp, nil
}

// loadUsersByIdentity reconstructs every user whose login or email matches
// one of the given values: a single batched, indexed lookup.
func (s *AuthService) loadUsersByIdentity(ctx context.Context, values []string) ([]models.User, error) {
	if len(values) == 0 {
		return nil, nil
	}

	ids, err := s.log.FindEntityIDs(ctx, models.EntityTypeUser, identityProperties, values)
	if err != nil {
		return nil, fmt.Errorf("error searching identities: %w", err)
	}

	events, err := s.log.LoadEvents(ctx, models.EntityTypeUser, ids)
	if err != nil {
		return nil, fmt.Errorf("error loading events: %w", err)
	}

	return users.FromEvents(events), nil
}

func (s *AuthService) findCommittedResponse(ctx context.Context, key uuid.UUID) (*RegisterResponse, error) {
	stored, err := s.log.FindBatchResponse(ctx, key)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error searching batch: %w", err)
	}

	resp := &RegisterResponse{}
	if err := json.Unmarshal(stored, resp); err != nil {
		return nil, fmt.Errorf("error decoding stored batch response: %w", err)
	}
	return resp, nil
}

func (s *AuthService) validateCreateUser(item *CreateUser) ([]validation.Error, error) {
	var errs []validation.Error

	fields := []struct {
		name  string
		value string
	}{
		{validation.FieldEmail, item.Email},
		{validation.FieldLogin, item.Login},
		{validation.FieldPassword, item.Password},
	}

	for _, f := range fields {
		fieldErrs, err := s.validator.Validate(f.name, f.value)
		if err != nil {
			return nil, err
		}
		errs = append(errs, fieldErrs...)
	}

	return errs, nil
}

func (s *AuthService) verifyPassword(user *models.User, password string) (bool, error) {
	hasher, err := s.hashers.Get(user.PasswordHashMethod)
	if err != nil {
		return false, fmt.Errorf("user %s: %w", user.ID, err)
	}

	computed := hasher.ComputeHash(hashing.Salted(user.PasswordSalt, password))
	return subtle.ConstantTimeCompare([]byte(computed), []byte(user.PasswordHash)) == 1, nil
}

func (s *AuthService) newUser(item *CreateUser) (*models.User, error) {
	hasher, err := s.hashers.Get(s.hashMethod)
	if err != nil {
		return nil, err
	}

	salt := uuid.NewString()

	return &models.User{
		ID:                 uuid.New(),
		Login:              item.Login,
		Email:              item.Email,
		PasswordHash:       hasher.ComputeHash(hashing.Salted(salt, item.Password)),
		PasswordHashMethod: s.hashMethod,
		PasswordSalt:       salt,
	}, nil
}

func hasUserWith(list []models.User, match func(*models.User) bool) bool {
	for i := range list {
		if match(&list[i]) {
			return true
		}
	}
	return false
}

// collidesInBatch reports whether an earlier item in the batch carries the
// same value as item i.
func collidesInBatch(items []CreateUser, i int, value func(*CreateUser) string) bool {
	target := value(&items[i])
	for j := 0; j < i; j++ {
		if value(&items[j]) == target {
			return true
		}
	}
	return false
}
