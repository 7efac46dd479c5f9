// Package billing provides the invoicing domain model.
//
// A Bill is the financial record of one completed sale: it belongs to a
// customer and owns an ordered list of sale lines. Bills are assembled only
// by the sale workflow, never by generic CRUD, and are immutable once
// persisted except for the total amount, which is set exactly once after
// line assembly.
//
// Key aggregates:
//   - Bill: the invoice, owning its SaleLines
//   - SaleLine: one product position (quantity × sale price); the sale price
//     is captured at sale time and may differ from the catalog price
package billing
