package persistence

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Supported store drivers
const (
	DriverDynamoDB = "dynamodb"
	DriverBolt     = "bolt"
)

// StoreLocation is a parsed STORE_URI
//
//	dynamodb://<table>?region=<region>&endpoint=<url>&create=true
//	bolt://<path>
type StoreLocation struct {
	Driver string

	// DynamoDB
	Table       string
	Region      string
	Endpoint    string
	CreateTable bool

	// bbolt
	Path string
}

// ParseStoreURI parses a store connection string
func ParseStoreURI(raw string) (StoreLocation, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return StoreLocation{}, fmt.Errorf("invalid store URI %q: %w", raw, err)
	}

	switch u.Scheme {
	case DriverDynamoDB:
		if u.Host == "" {
			return StoreLocation{}, fmt.Errorf("store URI %q is missing a table name", raw)
		}
		loc := StoreLocation{
			Driver:   DriverDynamoDB,
			Table:    u.Host,
			Region:   u.Query().Get("region"),
			Endpoint: u.Query().Get("endpoint"),
		}
		if create := u.Query().Get("create"); create != "" {
			loc.CreateTable, err = strconv.ParseBool(create)
			if err != nil {
				return StoreLocation{}, fmt.Errorf("store URI %q: create must be a boolean", raw)
			}
		}
		return loc, nil

	case DriverBolt:
		// bolt://data/vocabulary.db is relative, bolt:///var/lib/x.db absolute
		path := u.Host + u.Path
		if u.Opaque != "" {
			path = u.Opaque
		}
		path = strings.TrimSpace(path)
		if path == "" {
			return StoreLocation{}, fmt.Errorf("store URI %q is missing a file path", raw)
		}
		return StoreLocation{Driver: DriverBolt, Path: path}, nil

	default:
		return StoreLocation{}, fmt.Errorf("unsupported store driver %q", u.Scheme)
	}
}
