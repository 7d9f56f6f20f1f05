// Package compute holds the computation backends behind
// driven.ComputationEngine and driven.InkRecognizer.
//
// Adapters:
//   - local: built-in engine that collects like terms of linear sums
//   - remote: HTTP client for an external CAS and ink recognition service
package compute
