// Copyright (c) 2025 BVK Chaitanya

package telegram

import (
	"fmt"
	"slices"
)

// Secrets hold the bot token and the telegram users allowed to talk to the
// bot. Alerts go to the owner and the watchers.
type Secrets struct {
	BotToken string `json:"token"`

	OwnerID string `json:"owner"`

	// AdminID can run commands but receives no alerts.
	AdminID string `json:"admin"`

	Watchers []string `json:"watchers"`

	// AlertPairs limits the alerts to the listed pairs. Alerts for all pairs
	// are sent when empty.
	AlertPairs []string `json:"alert-pairs"`
}

func (v *Secrets) Check() error {
	if len(v.BotToken) == 0 {
		return fmt.Errorf("bot token cannot be empty")
	}
	if len(v.OwnerID) == 0 {
		return fmt.Errorf("owner id cannot be empty")
	}
	for _, w := range v.Watchers {
		switch w {
		case "":
			return fmt.Errorf("watcher id cannot be empty")
		case v.OwnerID, v.AdminID:
			return fmt.Errorf("watcher %q is already the owner or the admin", w)
		}
	}
	if slices.Contains(v.AlertPairs, "") {
		return fmt.Errorf("alert pair name cannot be empty")
	}
	return nil
}

func (v *Secrets) Clone() *Secrets {
	c := *v
	c.Watchers = slices.Clone(v.Watchers)
	c.AlertPairs = slices.Clone(v.AlertPairs)
	return &c
}

func (v *Secrets) isUser(id string) bool {
	return id == v.OwnerID || id == v.AdminID || slices.Contains(v.Watchers, id)
}

// alertsPair returns true if alerts for the pair are not filtered out.
func (v *Secrets) alertsPair(pair string) bool {
	return len(v.AlertPairs) == 0 || pair == "" || slices.Contains(v.AlertPairs, pair)
}
