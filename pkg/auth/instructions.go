package auth

import (
	"fmt"
	"io"
	"strings"

	"pfpharvest/pkg/config"
)

// WriteAPIKeyGuide prints how to obtain and install a catalog API key
func WriteAPIKeyGuide(w io.Writer) {
	line := strings.Repeat("=", 72)

	fmt.Fprintln(w, line)
	fmt.Fprintln(w, "OPENSEA API KEY")
	fmt.Fprintln(w, line)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "pfpharvest needs an API key to list collections.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "1. Request a key at https://docs.opensea.io/reference/api-keys")
	fmt.Fprintln(w, "2. Provide it in one of these ways (checked in this order):")
	fmt.Fprintf(w, "   - export %s=<key>  (or put it in a .env file)\n", config.APIKeyEnv)
	fmt.Fprintln(w, "   - catalog.api_key in .pfpharvest.yaml")
	fmt.Fprintln(w, "   - pfpharvest apikey set   (system keychain, or encrypted file)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Without a key every catalog request fails with an authentication error.")
	fmt.Fprintln(w, line)
}
