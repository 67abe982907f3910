/*
Package cache is a typed key-value store over a networked cache backend. It
should not be of any concern to the callee where the cache is, simply that it
exists and will speed things up.

A Store pairs a Backend (memcached in production, an in-memory map in tests)
with a Codec that serialises values. The Store keeps no state of its own
between calls; every operation is a round trip to the backend.

Eventual consistency of the cached items is promised, but nothing more.
*/
package cache
