package notion

// Export private functions for testing
var (
	BuildProperties = buildProperties
	DecodePage      = decodePage
	RichTextValue   = richTextValue
)
