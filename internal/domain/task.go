package domain

import "time"

// TaskKind enumerates the closed set of task types the backend issues.
// Dispatch happens through the policy table and the executor's kind
// switch; unknown kinds fall back to DefaultTaskPolicy (disabled).
type TaskKind string

const (
	TaskSubscription    TaskKind = "subscribe_telegram"
	TaskSocialFollow    TaskKind = "social_network"
	TaskClanJoin        TaskKind = "join_clan"
	TaskHomeScreen      TaskKind = "homescreen"
	TaskStory           TaskKind = "story"
	TaskMiningBot       TaskKind = "activate_mining_bot"
	TaskRewardedAd      TaskKind = "adsgram"
	TaskReferrals       TaskKind = "referrals"
	TaskBlockchainPromo TaskKind = "promote_blockchain"
)

// Task is a server-defined unit of work. Completion state lives on the
// server; the Completed flag here is only as fresh as the last fetch.
type Task struct {
	ID        int64
	Kind      TaskKind
	Title     string
	Reward    int64
	Completed bool

	// Kind-specific payload decoded from additional_data.
	ReferralsRequired int
	ViewsNeeded       int
}

// TaskPolicy bounds completion polling and retries for one task kind.
type TaskPolicy struct {
	Attempts int
	Delay    time.Duration
	Enabled  bool
}

// DefaultTaskPolicy is the fallback for unmapped kinds: bounded
// attempts, disabled.
func DefaultTaskPolicy() TaskPolicy {
	return TaskPolicy{Attempts: 4, Delay: 3 * time.Second, Enabled: false}
}
