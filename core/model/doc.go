// Package model holds the value objects shared by the dispatch core: the
// plant description, price series, schedules and the closed set of error
// kinds the core can return.
package model
