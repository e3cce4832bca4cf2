/*
Package topology understands the two binary result formats of the Windows
processor topology queries, as returned by the kernel32 functions
GetLogicalProcessorInformation and GetLogicalProcessorInformationEx, and
filters them down to a (smaller) set of low-order logical CPUs.

  - the “fixed” format is a linear array of equally sized
    SYSTEM_LOGICAL_PROCESSOR_INFORMATION records, see [FilterFixed].
  - the “extended” format is a chain of variable-length
    SYSTEM_LOGICAL_PROCESSOR_INFORMATION_EX records, where each record
    declares its own size in bytes, see [FilterExtended].

Only the 64-bit layouts (ULONG_PTR and KAFFINITY being 8 bytes) are supported.
All multi-byte fields are little endian.

Walking the extended format is done using a [Cursor] that never reads or
writes outside its buffer, even when a record declares a bogus size. In
addition to filtering, this package offers encoders (such as
[AppendProcessor]) to synthesize topology buffers, as well as decoders (such
as [DecodeExtended]) for diagnostic dumps.
*/
package topology
