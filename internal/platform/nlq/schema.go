// Package nlq bridges free-text analytics questions to fenced SQL
// execution: an external model turns the question plus a static schema
// description into a query, and a validating executor runs it read-only.
package nlq

// schemaVersion identifies the schema description handed to the query
// generator; bump it when the queryable surface changes.
const schemaVersion = "v1"

const schemaDescription = `Schema version: ` + schemaVersion + `

Table: person
  - id (bigint)
  - name (varchar)
  - surname (varchar)
  - sex (varchar: masculine|feminine)
  - birth_date (date, nullable)
  - phone (varchar)
  - role (varchar: client|staff)
  - specialty (varchar, nullable)

Table: category
  - id (bigint)
  - name (varchar)

Table: lab_test
  - id (bigint)
  - name (varchar)
  - requested_date (date)
  - delivery_date (date)
  - status (varchar)
  - observations (text, nullable)
  - rating (integer)
  - category_id (bigint, references category)
  - client_id (bigint, references person)
  - staff_id (bigint, references person)

Table: result
  - id (bigint)
  - test_id (bigint, references lab_test)
  - result (varchar)
  - date (date)
  - observations (text)
  - interpretation (text)
  - details (text)
  - image_path (text, nullable)
`

// SchemaDescription returns the static, versioned description of the
// queryable tables given to the query generator.
func SchemaDescription() string {
	return schemaDescription
}
