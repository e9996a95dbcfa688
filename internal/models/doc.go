// Package models defines the core domain models for Splitledger.
//
// # Models
//
//   - ExpenseRecord: one shared expense (or income) with its participants and
//     the contributions recording who actually paid what
//   - Contribution: a (payer, amount) pair attached to an expense
//   - Participant: a person who can pay for or owe a share of an expense
//   - Category: groups expenses and carries the default participant set used
//     when an expense declares none
//   - Settlement: a recorded payment from a debtor to a creditor
//   - User: a registered account allowed to call the API
//
// # Design Principles
//
//  1. Relationships are IDs, never pointers. Records reference participants and
//     categories by ID and resolve them through a single registry lookup.
//  2. Money is always money.Money; no float64 amounts.
//  3. Derived values (contribution status, balances, transfers) are computed on
//     read and never stored on these structs.
package models
