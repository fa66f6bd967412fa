// Package shared holds code used across xs-stat packages that belongs to
// no single pipeline step.
//
// The testutil subpackage provides a buffered slog handler with log
// assertions and a temporary workspace with raw, scratch, report and
// reference directories for pipeline tests:
//
//	func TestSomething(t *testing.T) {
//	    ws := testutil.NewWorkspace(t)
//	    ws.WriteLog(t, "20240101_A.csv", "1234 CompanyX 20240101")
//	    logger, handler := testutil.NewTestLogger(t)
//	    ...
//	}
package shared
