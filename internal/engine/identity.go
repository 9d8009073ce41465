package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/daun-gatal/chouse-ui-sub004/internal/domain"
)

// LogCommentSetting is the per-query setting the engine copies verbatim into
// system.processes (Settings map) and system.query_log (log_comment column).
const LogCommentSetting = "log_comment"

// introspectionPrefix marks query ids of statements this service issues
// against system tables on its own behalf.
const introspectionPrefix = "chouse-introspect-"

// ErrMalformedIdentity is returned by ParseIdentity for a comment that is
// present but does not carry a usable identity.
var ErrMalformedIdentity = errors.New("malformed identity comment")

// identityOverride matches statements that assign log_comment themselves,
// either in a trailing SETTINGS clause or with a SET statement. A query-level
// setting wins over the one stamped by Execute.
var identityOverride = regexp.MustCompile("(?is)\\bSETTINGS?\\b.*[\\s,/`\"(]log_comment[`\"]?(?:\\s|/\\*.*?\\*/)*=")

type identityComment struct {
	AppUserID string `json:"app_user_id"`
}

// EncodeIdentity renders the identity comment for userID. An empty userID
// yields an empty comment so the query stays unattributed.
func EncodeIdentity(userID string) string {
	if userID == "" {
		return ""
	}
	b, _ := json.Marshal(identityComment{AppUserID: userID})
	return string(b)
}

// ParseIdentity extracts the embedded identity from a comment echoed back by
// the engine. An empty comment returns (nil, nil): the owner is unknown.
func ParseIdentity(comment string) (*domain.AppIdentity, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, nil
	}
	var ic identityComment
	if err := json.Unmarshal([]byte(comment), &ic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedIdentity, err)
	}
	if strings.TrimSpace(ic.AppUserID) == "" {
		return nil, fmt.Errorf("%w: empty app_user_id", ErrMalformedIdentity)
	}
	return &domain.AppIdentity{UserID: ic.AppUserID}, nil
}

// OverridesIdentity reports whether sql tries to set its own identity comment.
func OverridesIdentity(sql string) bool {
	return identityOverride.MatchString(sql)
}

// stampContext attaches the query id and, when identity is known, the
// identity comment to ctx as per-query options.
func stampContext(ctx context.Context, queryID string, identity *domain.AppIdentity, base clickhouse.Settings) context.Context {
	settings := clickhouse.Settings{}
	for k, v := range base {
		settings[k] = v
	}
	if identity != nil {
		if c := EncodeIdentity(identity.UserID); c != "" {
			settings[LogCommentSetting] = c
		}
	}

	opts := []clickhouse.QueryOption{clickhouse.WithQueryID(queryID)}
	if len(settings) > 0 {
		opts = append(opts, clickhouse.WithSettings(settings))
	}
	return clickhouse.Context(ctx, opts...)
}

func newIntrospectionID() string {
	return introspectionPrefix + domain.NewID()
}
