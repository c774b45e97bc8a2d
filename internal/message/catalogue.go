package message

// CSS rewriting
var (
	UnsafeCSSIdentifier = Type{"UNSAFE_CSS_IDENTIFIER", Error,
		"css identifier %s is not allowed"}
	UnsafeCSSPseudoSelector = Type{"UNSAFE_CSS_PSEUDO_SELECTOR", Error,
		"css pseudo selector %s is not allowed"}
	CSSLinkPseudoSelectorNotAllowedOnNonanchor = Type{"CSS_LINK_PSEUDO_SELECTOR_NOT_ALLOWED_ON_NONANCHOR", Error,
		"link pseudo classes may only be used on anchor elements"}
	DisallowedCSSPropertyInSelector = Type{"DISALLOWED_CSS_PROPERTY_IN_SELECTOR", Error,
		"property %s cannot be used with the link pseudo classes of %s"}
	DisallowedURI = Type{"DISALLOWED_URI", Error,
		"uri %s is not allowed"}
	QuotedCSSValue = Type{"QUOTED_CSS_VALUE", Lint,
		"quoted unquoted words %s"}
	AssumingPixelsForLength = Type{"ASSUMING_PIXELS_FOR_LENGTH", Lint,
		"assuming pixels for length %s"}
	UnknownCSSProperty = Type{"UNKNOWN_CSS_PROPERTY", Error,
		"unknown css property %s"}
	MalformedCSSPropertyValue = Type{"MALFORMED_CSS_PROPERTY_VALUE", Error,
		"css property %s has bad value: %s"}
	UnsupportedCSSConstruct = Type{"UNSUPPORTED_CSS_CONSTRUCT", Error,
		"css construct %s is not supported"}
)

// HTML rewriting
var (
	BadAttrib = Type{"BAD_ATTRIB", Error,
		"attribute %s has bad value %s"}
	IllegalName = Type{"ILLEGAL_NAME", Error,
		"%s is not a valid identifier"}
	MalformedURI = Type{"MALFORMED_URI", Error,
		"%s is not a valid uri"}
	UnknownAttribute = Type{"UNKNOWN_ATTRIBUTE", Warning,
		"removing unknown attribute %s on %s"}
	UnknownElement = Type{"UNKNOWN_ELEMENT", Warning,
		"unknown element %s"}
	RemovingElement = Type{"REMOVING_ELEMENT", Warning,
		"removing disallowed element %s"}
)

// Cajoling
var (
	ExternalScript = Type{"EXTERNAL_SCRIPT", Warning,
		"not loading external script %s"}
	IgnoredBaseElement = Type{"IGNORED_BASE_ELEMENT", Warning,
		"ignoring <base> with unusable href %s"}
)
