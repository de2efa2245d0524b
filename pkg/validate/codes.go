package validate

// Issue codes are stable identifiers. External callers branch on them, so a
// code MUST NOT be renamed or removed between releases; new codes are
// additive.
const (
	// --- Structural ---
	CodeMissingRoot          = "UCP_MISSING_ROOT"
	CodeMissingVersion       = "UCP_MISSING_VERSION"
	CodeInvalidVersionFormat = "UCP_INVALID_VERSION_FORMAT"
	CodeMissingServices      = "UCP_MISSING_SERVICES"
	CodeInvalidService       = "UCP_INVALID_SERVICE"
	CodeMissingCapabilities  = "UCP_MISSING_CAPABILITIES"
	CodeInvalidCapability    = "UCP_INVALID_CAPABILITY"
	CodeInvalidSigningKey    = "UCP_INVALID_SIGNING_KEY"
	CodeEmptyCapabilities    = "UCP_EMPTY_CAPABILITIES"
	CodeEmptyServices        = "UCP_EMPTY_SERVICES"

	// --- Protocol rules ---
	CodeNamespaceOriginMismatch = "UCP_NS_ORIGIN_MISMATCH"
	CodeOrphanedExtension       = "UCP_ORPHANED_EXTENSION"
	CodeEndpointNotHTTPS        = "UCP_ENDPOINT_NOT_HTTPS"
	CodeEndpointTrailingSlash   = "UCP_ENDPOINT_TRAILING_SLASH"
	CodePrivateIPEndpoint       = "UCP_PRIVATE_IP_ENDPOINT"
	CodeMissingSigningKeys      = "UCP_MISSING_SIGNING_KEYS"
	CodeUnknownKeyAlg           = "UCP_UNKNOWN_KEY_ALG"

	// --- Network ---
	CodeProfileFetchFailed      = "UCP_PROFILE_FETCH_FAILED"
	CodeSchemaFetchFailed       = "UCP_SCHEMA_FETCH_FAILED"
	CodeSchemaNotSelfDescribing = "UCP_SCHEMA_NOT_SELF_DESCRIBING"
	CodeSchemaNameMismatch      = "UCP_SCHEMA_NAME_MISMATCH"
	CodeSchemaVersionMismatch   = "UCP_SCHEMA_VERSION_MISMATCH"
	CodeSchemaCompileFailed     = "UCP_SCHEMA_COMPILE_FAILED"
)

// AllCodes returns the full set of stable issue codes.
func AllCodes() []string {
	return []string{
		CodeMissingRoot,
		CodeMissingVersion,
		CodeInvalidVersionFormat,
		CodeMissingServices,
		CodeInvalidService,
		CodeMissingCapabilities,
		CodeInvalidCapability,
		CodeInvalidSigningKey,
		CodeEmptyCapabilities,
		CodeEmptyServices,
		CodeNamespaceOriginMismatch,
		CodeOrphanedExtension,
		CodeEndpointNotHTTPS,
		CodeEndpointTrailingSlash,
		CodePrivateIPEndpoint,
		CodeMissingSigningKeys,
		CodeUnknownKeyAlg,
		CodeProfileFetchFailed,
		CodeSchemaFetchFailed,
		CodeSchemaNotSelfDescribing,
		CodeSchemaNameMismatch,
		CodeSchemaVersionMismatch,
		CodeSchemaCompileFailed,
	}
}
