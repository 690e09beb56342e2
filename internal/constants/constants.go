package constants

import (
	"net/http"
	"time"
)

const Version = "0.3.0"

// Network defaults
const (
	DefaultServerURL     = "http://localhost:8080"
	DefaultDashboardPort = 4041
	DashboardHost        = "localhost"
	MinPort              = 1
	MaxPort              = 65535
	MaxResponseSize      = 32 * 1024 * 1024 // 32MB
)

// Identity cookie
const (
	IdentityCookieName     = "uid"
	IdentityCookiePath     = "/"
	IdentityCookieLifetime = 9999 * 24 * time.Hour
	IdentityCookieSameSite = http.SameSiteLaxMode
	CookieJarFile          = "cookies.json"
)

// Backend endpoints
const (
	EndpointFilterPost   = "/validate/post"
	EndpointFilterReset  = "/validate/reset"
	EndpointTreeGetState = "/tree/getState"
	EndpointTreeGetData  = "/tree/getData"
	EndpointTreeBuild    = "/tree/build"
	EndpointTreeStep     = "/tree/step"
	EndpointTreeBack     = "/tree/back"
	EndpointTreeQuery    = "/tree/query"
	EndpointTreeStash    = "/tree/updateStash"
	EndpointTreeReset    = "/tree/reset"
)

// Dashboard
const (
	DashboardWSReadBuffer    = 1024
	DashboardWSWriteBuffer   = 16384
	DashboardShutdownTimeout = 5 * time.Second
)

// Stash persistence
const (
	RedisKeyPrefix = "hydratutor:stash:"
	StashDBFile    = "stash.db"
	HistoryFile    = "history"
	StoreMemory    = "memory"
	StoreSQLite    = "sqlite"
	StoreRedis     = "redis"
	DefaultStore   = StoreSQLite
)

// Stash variants
const (
	VariantFilter = "filter"
	VariantTree   = "tree"
)

// Filter types
const (
	FilterTypeAuto   = "auto"
	FilterTypeValue  = "value"
	FilterTypeBundle = "bundle"
)

// Tree node markers
const (
	BundleMarker   = "*"
	PathSeparator  = "/"
	RootTitle      = "root"
	HitsPathSuffix = ":+hits"
	HitsOps        = "title=hits"
	NoData         = "None"
)

// DefaultTreeConfig is placed in the configuration editor after a reset.
const DefaultTreeConfig = "{\n\t\"type\":\"tree\",\n\t\"live\":true,\n\t\"root\":{\"path\":\"Tutor Tree\"},\n\t\"paths\":\n\t{\n\t\t\"Tutor Tree\":\n\t\t[\n\t\t\t{\"type\":\"const\", \"value\":\"INSERT PATH HERE\"}\n\t\t]\n\t}\n}"

// StashDateFormat matches the date string browsers stamp on entries.
const StashDateFormat = "Mon Jan 02 2006 15:04:05 GMT-0700 (MST)"

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorBold   = "\033[1m"
	ColorDim    = "\033[2m"
	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorRed    = "\033[31m"
	ColorPurple = "\033[35m"
)

// Messages
const (
	MsgBlankBuild     = "Please enter a tree input and configuration before building."
	MsgAlreadyBuilt   = "You've already built a tree with that input and configuration."
	MsgNotBuilt       = "You have to build a tree before you can run a query."
	MsgStaleTree      = "Please rebuild your tree with the current input and configuration before querying."
	MsgBlankQuery     = "Please enter path and ops before trying to run a query."
	MsgDuplicateQuery = "You've already run a query with that path and ops."
	MsgBlankStash     = "Please enter a tree input and configuration before stashing."
	MsgBusy           = "A request for this control is already in progress."
	MsgNotFound       = "No stash entry with that id."
)
