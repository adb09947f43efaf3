// Package collections derives named item lists for layouts: glob collections such as
// blog and pages, and the upcomingHappenings/pastHappenings views partitioned by
// happeningDate against the current instant.
package collections
