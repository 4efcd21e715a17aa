// Package history implements the alarm stores behind the history backend.
//
// FileRepository serves records from a YAML file and is meant for fixtures and
// small installations. PostgresRepository serves the alarm_history table and
// owns its schema migrations. Both satisfy the domain Backend interface.
package history
