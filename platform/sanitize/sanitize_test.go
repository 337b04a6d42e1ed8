package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "Smith residence", stripHTML("<b>Smith</b> residence"))
	assert.Equal(t, "alert(1)", stripHTML("&lt;script&gt;alert(1)&lt;/script&gt;"))
}

func TestLineRemovesHeaderBreaks(t *testing.T) {
	assert.Equal(t, "PROJ-1 Bcc: x@example.com", Line("PROJ-1\r\nBcc: x@example.com"))
	assert.Equal(t, "a b", Line("  a \t\n b  "))
}
