package model

import "encoding/json"

// AccountingTask is a deferred completion-time accounting mutation. It is
// enqueued when the counter increment or the usage append fails after a turn
// has already streamed, and replayed by the drain worker. The record keeps
// its original ULID so a replay cannot double-count the turn.
type AccountingTask struct {
	Record        UsageRecord `json:"record"`
	Period        string      `json:"period"`
	Premium       bool        `json:"premium"`
	NeedIncrement bool        `json:"needIncrement"`
	NeedUsage     bool        `json:"needUsage"`
	Attempts      int         `json:"attempts"`
}

func (t *AccountingTask) Encode() ([]byte, error) { return json.Marshal(t) }

func DecodeAccountingTask(b []byte) (*AccountingTask, error) {
	var t AccountingTask
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
