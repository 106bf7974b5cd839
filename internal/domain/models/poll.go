package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

var ErrValidation = errors.New("validation error")

const (
	MinPollOptions     = 2
	MinDurationMinutes = 1
	MaxDurationMinutes = 120
)

type Poll struct {
	ID              string    `json:"id"`
	Question        string    `json:"question"`
	Options         []string  `json:"options"`
	CreatedBy       string    `json:"createdBy"`
	CreatedAt       time.Time `json:"createdAt"`
	DurationMinutes int       `json:"durationMinutes"`
	ExpiresAt       time.Time `json:"expiresAt"`
	IsActive        bool      `json:"isActive"`
	IsPrivate       bool      `json:"isPrivate"`
	AllowedUsers    []string  `json:"allowedUsers"`
	Votes           []Vote    `json:"votes"`
}

type Vote struct {
	UserID  string    `json:"userId"`
	Option  string    `json:"option"`
	VotedAt time.Time `json:"votedAt"`
}

// Validate checks the structural invariants of a poll: a non-empty question,
// at least two distinct options and a duration inside the allowed window.
func (p Poll) Validate() error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.Question, validation.Required, validation.By(notBlank)),
		validation.Field(&p.Options, validation.Required, validation.By(distinctOptions)),
		validation.Field(&p.DurationMinutes,
			validation.Required,
			validation.Min(MinDurationMinutes),
			validation.Max(MaxDurationMinutes),
		),
		validation.Field(&p.AllowedUsers, validation.By(nonEmptyEntries)),
	)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	if !p.ExpiresAt.Equal(p.CreatedAt.Add(time.Duration(p.DurationMinutes) * time.Minute)) {
		return fmt.Errorf("%w: expiresAt must equal createdAt plus duration", ErrValidation)
	}

	return nil
}

func (p Poll) HasOption(option string) bool {
	for _, o := range p.Options {
		if o == option {
			return true
		}
	}
	return false
}

func (p Poll) HasVoted(userID string) bool {
	for _, v := range p.Votes {
		if v.UserID == userID {
			return true
		}
	}
	return false
}

// ExpiredAt reports whether the poll's time window is over at the given instant.
func (p Poll) ExpiredAt(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// Results counts votes per current option. Votes for options removed by a
// later update are not counted.
func (p Poll) Results() map[string]int {
	results := make(map[string]int, len(p.Options))
	for _, o := range p.Options {
		results[o] = 0
	}
	for _, v := range p.Votes {
		if _, ok := results[v.Option]; ok {
			results[v.Option]++
		}
	}
	return results
}

// Clone returns a copy that shares no slices with p.
func (p Poll) Clone() Poll {
	c := p
	c.Options = append([]string(nil), p.Options...)
	c.AllowedUsers = append([]string(nil), p.AllowedUsers...)
	c.Votes = append([]Vote(nil), p.Votes...)
	return c
}

func notBlank(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}

func distinctOptions(value interface{}) error {
	options, _ := value.([]string)
	if len(options) < MinPollOptions {
		return fmt.Errorf("at least %d options are required", MinPollOptions)
	}

	seen := make(map[string]struct{}, len(options))
	for _, o := range options {
		if strings.TrimSpace(o) == "" {
			return errors.New("options cannot be blank")
		}
		if _, ok := seen[o]; ok {
			return fmt.Errorf("duplicate option %q", o)
		}
		seen[o] = struct{}{}
	}
	return nil
}

func nonEmptyEntries(value interface{}) error {
	entries, _ := value.([]string)
	for _, e := range entries {
		if strings.TrimSpace(e) == "" {
			return errors.New("entries cannot be blank")
		}
	}
	return nil
}

// PollStatus selects polls by their (reconciled) activity.
type PollStatus string

const (
	PollStatusAny     PollStatus = ""
	PollStatusActive  PollStatus = "active"
	PollStatusExpired PollStatus = "expired"
)

type PollVisibility string

const (
	VisibilityAny     PollVisibility = ""
	VisibilityPublic  PollVisibility = "public"
	VisibilityPrivate PollVisibility = "private"
)

// PollFilter carries the caller supplied list filters.
type PollFilter struct {
	Status     PollStatus
	Visibility PollVisibility
	Voted      *bool
}

func (f PollFilter) Validate() error {
	switch f.Status {
	case PollStatusAny, PollStatusActive, PollStatusExpired:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrValidation, f.Status)
	}
	switch f.Visibility {
	case VisibilityAny, VisibilityPublic, VisibilityPrivate:
	default:
		return fmt.Errorf("%w: unknown visibility %q", ErrValidation, f.Visibility)
	}
	return nil
}

// PollQuery is the storage level predicate. A nil Viewer means no visibility
// restriction is applied.
type PollQuery struct {
	Viewer     *Identity
	Visibility PollVisibility
	VotedBy    string
	NotVotedBy string
}

// PollUpdate holds the full set of mutable fields after a patch was merged.
type PollUpdate struct {
	ID              string
	Question        string
	Options         []string
	DurationMinutes int
	ExpiresAt       time.Time
	IsPrivate       bool
	AllowedUsers    []string
}

// PollPatch is a partial update; nil fields are left untouched.
type PollPatch struct {
	Question        *string
	Options         []string
	DurationMinutes *int
	IsPrivate       *bool
	AllowedUsers    *[]string
}
