package jwt

import (
	"strings"
	"testing"
	"time"
)

// FuzzParseAccess feeds arbitrary strings to the parser. Malformed input must
// be rejected with an error, never a panic.
func FuzzParseAccess(f *testing.F) {
	mgr, err := NewManager(Config{
		AccessTTL:     5 * time.Minute,
		RefreshTTL:    time.Hour,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte(strings.Repeat("f", 32)),
		Issuer:        "fuzz",
	})
	if err != nil {
		f.Fatal(err)
	}

	pair, err := mgr.IssuePair("p-1")
	if err != nil {
		f.Fatal(err)
	}

	f.Add(pair.AccessToken)
	f.Add(pair.RefreshToken)
	f.Add("")
	f.Add("not.a.jwt")
	f.Add("eyJhbGciOiJub25lIn0.eyJzdWIiOiJ0ZXN0In0.")

	f.Fuzz(func(t *testing.T, input string) {
		claims, err := mgr.ParseAccess(input)
		if err != nil {
			return
		}
		if claims == nil || claims.Subject == "" {
			t.Fatal("ParseAccess accepted a token without claims")
		}
	})
}
