package cart

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Activity is the time of the last mutating operation, or unset.
// An unset activity means the cart has never been touched (or was
// reset by expiry) and expiry checks must leave it alone.
type Activity struct {
	at  time.Time
	set bool
}

func ActiveAt(t time.Time) Activity {
	return Activity{at: time.UnixMilli(t.UnixMilli()), set: true}
}

func (a Activity) IsSet() bool {
	return a.set
}

// Time returns the activity time; ok is false when unset.
func (a Activity) Time() (t time.Time, ok bool) {
	return a.at, a.set
}

// UnixMilli returns 0 when unset.
func (a Activity) UnixMilli() int64 {
	if !a.set {
		return 0
	}
	return a.at.UnixMilli()
}

// MarshalJSON writes epoch milliseconds; 0 stands for unset.
func (a Activity) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.UnixMilli())
}

func (a *Activity) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = Activity{}
		return nil
	}
	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return err
	}
	if ms <= 0 {
		*a = Activity{}
		return nil
	}
	*a = Activity{at: time.UnixMilli(ms), set: true}
	return nil
}

// State is the durable cart record.
type State struct {
	Items        []LineItem `json:"items"`
	LastActivity Activity   `json:"lastActivityTimestamp"`
}

// Clone returns a deep copy. Items is never nil in the copy so the
// JSON form is always an array.
func (s State) Clone() State {
	items := make([]LineItem, len(s.Items))
	for i, item := range s.Items {
		items[i] = item.clone()
	}
	return State{Items: items, LastActivity: s.LastActivity}
}

func (s State) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func (s State) TotalItemCount() int {
	count := 0
	for _, item := range s.Items {
		count += item.Quantity
	}
	return count
}

func (s State) indexOf(id string) int {
	for i, item := range s.Items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// Encode serializes the state for a storage slot.
func Encode(s State) ([]byte, error) {
	return json.Marshal(s.Clone())
}

// Decode parses a storage slot. Rows with a quantity below one or a
// repeated id are dropped.
func Decode(data []byte) (State, error) {
	var raw State
	if err := json.Unmarshal(data, &raw); err != nil {
		return State{}, err
	}
	s := State{Items: make([]LineItem, 0, len(raw.Items)), LastActivity: raw.LastActivity}
	for _, item := range raw.Items {
		if item.Quantity < 1 || item.ID == "" || s.indexOf(item.ID) >= 0 {
			continue
		}
		s.Items = append(s.Items, item)
	}
	return s, nil
}
