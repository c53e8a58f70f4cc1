package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wheel-empire/fortune-bot/internal/model"
)

const launchDataMaxAge = 24 * time.Hour

// LaunchData is the identity assertion extracted from a verified
// Telegram WebApp init payload.
type LaunchData struct {
	UserID     int64
	StartParam string
	AuthDate   time.Time
}

type webAppUser struct {
	ID int64 `json:"id"`
}

// VerifyLaunchData checks the HMAC signature of a WebApp init payload
// against the bot token and returns the asserted identity. Every
// failure mode collapses to ErrUnauthenticated.
func VerifyLaunchData(initData, botToken string, now time.Time) (*LaunchData, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, model.ErrUnauthenticated
	}

	gotHash := values.Get("hash")
	if gotHash == "" {
		return nil, model.ErrUnauthenticated
	}
	values.Del("hash")

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+values.Get(key))
	}
	checkString := strings.Join(pairs, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(checkString))

	if !hmac.Equal([]byte(hex.EncodeToString(mac.Sum(nil))), []byte(gotHash)) {
		return nil, model.ErrUnauthenticated
	}

	authDateUnix, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, model.ErrUnauthenticated
	}
	authDate := time.Unix(authDateUnix, 0)
	if now.Sub(authDate) > launchDataMaxAge {
		return nil, model.ErrUnauthenticated
	}

	user := webAppUser{}
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil || user.ID == 0 {
		return nil, model.ErrUnauthenticated
	}

	return &LaunchData{
		UserID:     user.ID,
		StartParam: values.Get("start_param"),
		AuthDate:   authDate,
	}, nil
}
