// Package feature allocates and resolves numbered feature directories.
//
// Features live under the specs root as NNN-slug directories. Allocation
// scans for the highest existing number and takes the next one; resolution
// prefers an explicit override, then the current git branch, then the
// single highest-numbered directory. Concurrent allocations from separate
// processes are not coordinated; last writer wins.
package feature
