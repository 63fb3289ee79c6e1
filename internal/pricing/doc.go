// Package pricing fetches day-ahead electricity prices and feeds them into
// rule evaluation as readings of the price pseudo-sensor (ID -1).
//
// The Client talks to a day-ahead price API over HTTP; the Refresher runs
// it on a cron schedule, records each price in the reading store, and fans
// it out to the evaluation engine like any other sensor reading.
package pricing
