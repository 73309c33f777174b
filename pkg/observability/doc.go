/*
Package observability turns navigation lifecycle hooks into metrics and logs.

NewMetrics registers Prometheus collectors and returns the domain.Hooks that feed them.
Logging returns hooks that write one structured record per event. Combine fans a single
hook slot out to several hook sets.
*/
package observability
