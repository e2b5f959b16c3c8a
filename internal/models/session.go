package models

import "time"

type SessionState string

const (
	StateInit                 SessionState = "SESSION_INIT"
	StateEntry                SessionState = "SESSION_ENTRY"
	StateStarted              SessionState = "SESSION_STARTED"
	StateFailed               SessionState = "SESSION_FAILED"
	StateExpired              SessionState = "SESSION_EXPIRED"
	StateOverruleInvalidation SessionState = "SESSION_OVERRULE_INVALIDATION"
)

// Terminal reports whether no further transition is permitted out of s.
func (s SessionState) Terminal() bool {
	switch s {
	case StateFailed, StateExpired, StateOverruleInvalidation:
		return true
	}
	return false
}

type ExtraMeta struct {
	Provider string `json:"provider"`
	Mode     string `json:"mode"`
}

type UserAgentMeta struct {
	UserAgent string `json:"user-agent"`
	PlayerIP  string `json:"player_ip"`
}

type Session struct {
	PlayerID       string        `json:"player_id" redis:"player_id"`
	OperatorID     string        `json:"operator_id" redis:"operator_id"`
	GameID         string        `json:"game_id" redis:"game_id"`
	GameIDOriginal string        `json:"game_id_original" redis:"game_id_original"`
	Currency       string        `json:"currency" redis:"currency"`
	TokenInternal  string        `json:"token_internal" redis:"token_internal"`
	TokenOriginal  string        `json:"token_original" redis:"token_original"`
	ExtraMeta      ExtraMeta     `json:"extra_meta" redis:"extra_meta"`
	UserAgent      UserAgentMeta `json:"user_agent" redis:"user_agent"`
	State          SessionState  `json:"state" redis:"state"`
	Expired        bool          `json:"expired" redis:"expired"`
	CreatedAt      time.Time     `json:"created_at" redis:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" redis:"updated_at"`
}
