package testutil

import "github.com/roach88/ormkit/internal/datastore"

// UserSeed returns a fresh seed with two users sharing a name and four
// records of a numeric "Score" model.
func UserSeed() datastore.Seed {
	return datastore.Seed{
		"User": {
			{"id": "123", "name": "unit-test", "email": "a@example.com", "created": "2024-01-01"},
			{"id": "234", "name": "unit-test-2", "email": "b@example.com", "created": "2024-02-01"},
		},
		"Score": {
			{"id": "1", "value": 1},
			{"id": "2", "value": 2},
			{"id": "3", "value": 3},
			{"id": "4", "value": 4},
		},
	}
}
