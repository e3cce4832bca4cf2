/*
Package cpulimiter makes a host process believe it runs on a system with fewer
logical CPUs than there actually are. It does so by rewriting the results of
the processor topology, affinity mask, and system information queries of the
host process to be consistent with a fixed, smaller [VirtualSet] of the
low-order CPUs #0 to #n-1.

The [Engine] implements entry points with the same parameters, parameter
validation order and error signalling as the Windows kernel32 functions it
stands in for, such as GetLogicalProcessorInformationEx. An (external)
interception layer is expected to route the host's calls into these entry
points, handing the unhooked functions to the engine in form of a
[RawProvider] on [Engine.Activate].

  - affinity masks passed in or reported back are clamped to the virtual CPU
    set; ideal processor indices outside the set are rejected.
  - the fixed-format topology ([Engine.LogicalProcessorInformation]) is
    filtered once and then served from a cache without any locking.
  - the extended topology ([Engine.LogicalProcessorInformationEx]) is
    filtered and cached for the most recently queried relationship,
    rebuilding the cache whenever the relationship changes.
  - processor counts in system information are capped to the virtual count.

Topology buffers follow the “two-phase” protocol of the kernel32 functions: a
query with an absent or too small buffer fails with [ErrInsufficientBuffer]
and reports the required size, so that the caller can retry with a
sufficiently sized buffer.

The engine doesn't change the real scheduling of any thread: it only changes
what the host gets to see.

Configuration is a single value, the virtual CPU count, see [ConfigFromEnv].
*/
package cpulimiter
