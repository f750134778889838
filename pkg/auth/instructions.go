package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowAPIKeyGuide writes step-by-step instructions for obtaining an API key
func ShowAPIKeyGuide(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w, "TUMBLR API KEY")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Reading liked posts needs the OAuth consumer key of a registered app.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 1: Register an application")
	fmt.Fprintln(w, "   - Go to https://www.tumblr.com/oauth/apps")
	fmt.Fprintln(w, "   - Click 'Register application' and fill in the form")
	fmt.Fprintln(w, "   - Any website and callback URL will do")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 2: Copy the OAuth consumer key")
	fmt.Fprintln(w, "   - It is listed on the app page under 'OAuth Consumer Key'")
	fmt.Fprintln(w, "   - The secret key is not needed")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 3: Make your likes visible")
	fmt.Fprintln(w, "   - Blog settings, 'Share posts you like' must be on")
	fmt.Fprintln(w, "   - Otherwise the API answers 401 or 403 for the likes endpoint")
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 72))
}
