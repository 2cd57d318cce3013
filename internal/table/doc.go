// Package table turns raw CSV records into the rows shown on screen.
//
// # Pipeline
//
// Every state change runs the same stages in order, starting from the
// untouched [Dataset]:
//
//  1. [Transform]: raw string fields become typed [Value]s per [Column]
//  2. [Filter]: case-sensitive substring match on each value's string form
//  3. [Sort]: stable sort on one column, ascending or descending
//  4. [Paginate]: fixed-size window plus [Navigation] links
//
// A change at an earlier stage recomputes every later one, and any filter
// or sort lands on page 0.
//
// # Engine
//
// [Engine] owns the dataset and the derived filter, sort and page state.
// Each operation swaps the whole derived state and then hands a [View] to
// its [Renderer]:
//
//	eng, err := table.NewEngine(table.Options{
//	    Columns:  def.Columns,
//	    Renderer: table.RendererFunc(func(v table.View) { last = v }),
//	})
//	eng.Load(records)
//	eng.ApplyFilter("Acme")
//	eng.ApplySort("numEmps")
//	eng.RequestPage(1)
//
// # Empty values
//
// Conversion never fails. A field that cannot be parsed becomes the empty
// sentinel of its kind (a pgtype value with Valid=false). Empty values sort
// after all others in ascending order and before them in descending order.
package table
