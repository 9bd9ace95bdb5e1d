/*
Package observability turns store lifecycle hooks into metrics and trace exports.

Both are plain domain.LifecycleHooks values, passed to a store with
replay.WithLifecycleHooks; hooks can be combined with LifecycleHooks.Merge.
*/
package observability
