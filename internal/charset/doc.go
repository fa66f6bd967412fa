// Package charset detects the text encoding of log files and reference
// tables and rewrites them as UTF-8 with a byte-order mark.
//
// Files produced by charting software on Chinese-locale systems arrive
// as UTF-8, GB18030 (and its GBK/GB2312 subsets) or Big5. Statistical
// detection frequently labels such files as a Western, Korean or
// Japanese codepage; those labels are remapped to the configured legacy
// codepage before decoding. Decoding is strict: a byte sequence that
// does not decode fails with an encoding error naming the file and line.
package charset
