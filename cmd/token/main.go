// Command token issues a bearer token for a user id, signed with
// JWT_SECRET and valid for ACCESS_TOKEN_TTL_MIN minutes.
//
//	token -user 7
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Artem9968/shareit/internal/config"
	"github.com/Artem9968/shareit/internal/utils"
)

type issued struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func issue(w io.Writer, auth config.AuthConfig, userID uint64) error {
	if userID == 0 {
		return fmt.Errorf("user id must be positive")
	}
	tok, err := utils.NewAccessToken(auth.Secret, userID, auth.AccessTTL)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	return json.NewEncoder(w).Encode(issued{Token: tok.Token, ExpiresAt: tok.Exp})
}

func main() {
	userID := flag.Uint64("user", 0, "user id to put in the token subject")
	envFile := flag.String("env", ".env", "optional env file")
	flag.Parse()

	auth, err := config.LoadAuth(*envFile)
	if err != nil {
		logrus.WithError(err).Fatal("load auth config")
	}
	if err := issue(os.Stdout, auth, *userID); err != nil {
		logrus.WithError(err).Fatal("issue token")
	}
}
