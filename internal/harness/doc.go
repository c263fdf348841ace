// Package harness runs command-text scenarios.
//
// A scenario is a YAML file naming a schema and a list of commands. Each
// command is a descriptor written as YAML plus the command text (or error
// code) it must produce:
//
//	name: products
//	description: Key and filter addressing
//	schema_dir: ../schema
//	commands:
//	  - name: by key
//	    resource: Products
//	    key: 1
//	    expect: Products(1)
//	  - name: key and filter
//	    resource: Products
//	    key: 1
//	    filter: ProductID eq 1
//	    expect_error: AMBIGUOUS_ADDRESSING
//
// Run builds every command and reports which ones match. RunWithGolden
// renders the results as text and compares them with a golden file under
// testdata/golden. To regenerate golden files, run:
//
//	go test ./internal/harness -update
package harness
