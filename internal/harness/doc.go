// Package harness runs query scenarios against a fresh in-memory store.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	models: ../models          # optional CUE model directory
//	model: User
//	seed:
//	  User:
//	    - { id: "123", name: unit-test }
//	setup:
//	  - save: { id: "345", name: unit-test }
//	    expect_error: VALIDATION_ERROR
//	query:
//	  - property: { name: name, value: Unit-Test, case_sensitive: true }
//	  - or: true
//	  - property: { name: value, value: 2, type: number, symbol: ">" }
//	  - sort: { key: name, ascending: false }
//	  - take: 10
//	assertions:
//	  - type: result_ids
//	    ids: ["234", "123"]
//	  - type: final_state
//	    key: "345"
//	    absent: true
//
// Relative models paths resolve against the scenario file's directory.
// Without models the model is declared from name and primary_key alone.
//
// # Assertion Types
//
//   - result_ids: primary keys of the results, in order
//   - result_count: number of results
//   - result_contains: some result contains the given fields
//   - error_code: the query failed with the given code
//   - final_state: the record stored under key contains the given fields,
//     or is absent
//
// Each scenario runs with its own store and a sequence ID generator, so
// results and golden snapshots are reproducible.
package harness
