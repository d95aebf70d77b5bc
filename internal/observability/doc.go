// Package observability records board events as JSON Lines, derives usage
// metrics from them, evaluates board alerts (forgotten timers, stale
// waiting tasks, open-task overload) and posts alerts to Slack.
package observability
