// Command skemabridge inspects YAML table definitions: it prints the
// mapped validators, exports them as JSON Schema or OpenAPI, checks
// documents against a table and drives the reference document stores.
package main

func main() {
	Execute()
}
