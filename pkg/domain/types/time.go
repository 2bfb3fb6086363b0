package types

import "time"

// JST is the fixed UTC+9 offset used for every stored timestamp and for
// selecting the reporting month. All records are interpreted in this single
// timezone regardless of the caller's locale or the server's local time.
var JST = time.FixedZone("JST", 9*60*60)

// DateFormat is the denormalized date key stored alongside each record
const DateFormat = "2006-01-02"

// MonthFormat is the substring matched against the date key when
// querying one month of records
const MonthFormat = "2006-01"
