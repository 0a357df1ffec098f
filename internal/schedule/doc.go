// Package schedule computes cron run times and runs work at them.
//
// Cron functions parse and validate cron expressions and compute upcoming run times.
// Every blocks, running a function at each upcoming time in turn.
package schedule
