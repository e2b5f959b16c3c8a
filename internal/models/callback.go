package models

import "encoding/json"

type Command string

const (
	CommandInit     Command = "init"
	CommandSpin     Command = "spin"
	CommandFreespin Command = "freespin"
	CommandClose    Command = "close"
)

// CallbackRequest is the body relayed from the embedded game client. Bet is
// in cents, the provider's smallest currency unit.
type CallbackRequest struct {
	Command  Command `json:"command"`
	Bet      int64   `json:"bet,omitempty"`
	PlayerID string  `json:"player_id,omitempty"`
}

// Balance is the locally-controlled balance spliced into every upstream
// response. Both fields are cents.
type Balance struct {
	Game   int64 `json:"game"`
	Wallet int64 `json:"wallet"`
}

type Currency struct {
	Code     string `json:"code"`
	Symbol   string `json:"symbol"`
	Subunits int64  `json:"subunits"`
	Exponent int    `json:"exponent"`
}

type UpstreamError struct {
	Code int    `json:"code"`
	Desc string `json:"desc"`
}

// UpstreamResponse mirrors the provider's gameplay API response shape.
// Fields we never touch are carried through Extra untouched.
type UpstreamResponse struct {
	Balance *Balance                   `json:"balance,omitempty"`
	Options map[string]json.RawMessage `json:"options,omitempty"`
	Outcome *Outcome                   `json:"outcome,omitempty"`
	Errors  []UpstreamError            `json:"errors,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Outcome carries the stake and payout of a spin, in cents.
type Outcome struct {
	Bet int64 `json:"bet,omitempty"`
	Win int64 `json:"win,omitempty"`
}

var knownResponseKeys = map[string]bool{
	"balance": true,
	"options": true,
	"outcome": true,
	"errors":  true,
}

// UnmarshalJSON keeps unknown upstream fields so the proxied response
// preserves the provider's protocol shape.
func (r *UpstreamResponse) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	type plain UpstreamResponse
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = UpstreamResponse(p)

	for key, value := range raw {
		if knownResponseKeys[key] {
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]json.RawMessage)
		}
		r.Extra[key] = value
	}
	return nil
}

func (r UpstreamResponse) MarshalJSON() ([]byte, error) {
	merged := make(map[string]interface{}, len(r.Extra)+4)
	for key, value := range r.Extra {
		merged[key] = value
	}
	if r.Balance != nil {
		merged["balance"] = r.Balance
	}
	if len(r.Options) > 0 {
		merged["options"] = r.Options
	}
	if r.Outcome != nil {
		merged["outcome"] = r.Outcome
	}
	if len(r.Errors) > 0 {
		merged["errors"] = r.Errors
	}
	return json.Marshal(merged)
}

// ErrorResponse builds the embedded-error envelope the game client expects.
// Always delivered with HTTP 200 so the client's own error handling stays
// intact.
func ErrorResponse(code int, desc string, walletCents int64) UpstreamResponse {
	return UpstreamResponse{
		Errors:  []UpstreamError{{Code: code, Desc: desc}},
		Balance: &Balance{Game: 0, Wallet: walletCents},
	}
}
