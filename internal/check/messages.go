package check

import "fmt"

// Failure messages reported by checks and step definitions.
const (
	MsgAuditResponseNull = "The audit response should not be null"
	MsgTokenNotGenerated = "Failed to generate access token"

	MsgHistoryNotJSONArray     = "Audit history response should be a JSON array"
	MsgHistoryEmptyExpected    = "Expected an empty JSON array but got data"
	MsgHistoryDataExpected     = "Expected audit history data but response is empty"
	MsgContentTypeInvalid      = "Content-Type header is not %s"
	MsgInvalidGUID             = "GUID format is invalid"
	MsgEmptyGUID               = "GUID should not be empty"
	MsgInvalidTimestamp        = "Timestamp is not in valid ISO 8601 UTC format"
	MsgTimestampInFuture       = "Timestamp should not be in the future"
	MsgEmptyString             = "String field should not be empty"
	MsgPascalCaseFound         = "Response should use camelCase, but PascalCase property found"
	MsgHistoryIDMismatch       = "Audit history ID in response does not match requested ID"
	MsgFieldMismatch           = "Field value does not match filter criteria"
	MsgCreatedAtOutOfRange     = "CreatedAt timestamp is outside the requested range"
	MsgPaginationCountMismatch = "Response contains more items than requested page size"
	MsgPaginationMetadata      = "Pagination metadata is missing or incorrect"
	MsgSortOrderIncorrect      = "Items are not sorted in the expected order"

	MsgProductsResponseNull = "The products response object should not be null"
	MsgProductsListEmpty    = "The products list should not be empty"
	MsgProductTitleEmpty    = "Product title should not be null or empty"
	MsgProductDescEmpty     = "Product description should not be null or empty"
	MsgSearchResultsEmpty   = "The search results list should not be empty"
	MsgNoMatchingProducts   = "Search results should contain at least one product with '%s' in title or description"

	MsgUserResponseNull = "The user response should not be null"
	MsgUserDataMissing  = "User data is missing in the response"
	MsgUserIDEmpty      = "User Id should not be empty"
)

// StatusCodeMismatch formats a status code failure.
func StatusCodeMismatch(expected, actual int) string {
	return fmt.Sprintf("Expected status code %d but received %d", expected, actual)
}

// FieldMissing formats a missing field failure.
func FieldMissing(field string) string {
	return fmt.Sprintf("Required field '%s' is missing from the response", field)
}

// InvalidDateRange formats a reversed range failure.
func InvalidDateRange(from, to string) string {
	return fmt.Sprintf("Invalid date range: 'from' (%s) is after 'to' (%s)", from, to)
}

// ProductIDInvalid formats a non-positive product id failure.
func ProductIDInvalid(id int) string {
	return fmt.Sprintf("Product ID should be greater than 0, but got %d", id)
}
