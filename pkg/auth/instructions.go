package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowAPIKeyGuide explains where API keys come from and how they are stored
func ShowAPIKeyGuide(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w, "🔑 FIRECRAWL API KEYS")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Self-hosted servers usually run without authentication; in that case")
	fmt.Fprintln(w, "no key is needed and requests are sent without an Authorization header.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "If your server requires a key:")
	fmt.Fprintln(w, "   1. Ask the operator of the server for a key, or read it from the")
	fmt.Fprintln(w, "      server's environment if you run it yourself")
	fmt.Fprintln(w, "   2. Run 'firecrawl auth login' and paste the key when prompted")
	fmt.Fprintln(w, "   3. Use --profile to keep keys for several servers apart")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Keys are kept in the system keychain when one is available and in an")
	fmt.Fprintln(w, "encrypted file in the config directory otherwise. FIRECRAWL_API_KEY")
	fmt.Fprintln(w, "is used when nothing is stored.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "⚠️  Keys are sent as 'Authorization: Bearer <key>'. Never share them.")
	fmt.Fprintln(w, strings.Repeat("=", 72))
}
