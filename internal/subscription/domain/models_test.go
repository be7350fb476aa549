package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBillingCycleValid(t *testing.T) {
	assert.True(t, BillingCycleQuarterly.Valid())
	assert.False(t, BillingCycle("Weekly").Valid())
	assert.True(t, SubscriptionStatusExpired.Valid())
	assert.False(t, SubscriptionStatus("ACTIVE").Valid())
}

func TestNextDueAfter(t *testing.T) {
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

	cases := map[BillingCycle]time.Time{
		BillingCycleMonthly:    time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC),
		BillingCycleQuarterly:  time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC),
		BillingCycleSemiannual: time.Date(2024, time.July, 15, 0, 0, 0, 0, time.UTC),
		BillingCycleAnnual:     time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC),
	}
	for cycle, want := range cases {
		sub := Subscription{BillingCycle: cycle}
		assert.Equal(t, want, sub.NextDueAfter(start), string(cycle))
	}
}
