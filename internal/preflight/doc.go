// Package preflight provides readiness checks for the filesystem, external
// binaries and services that hardsub depends on.
//
// These checks run in two contexts:
//   - The bot runtime calls RunAll at startup and refuses to poll for updates
//     when a blocking check fails, so users never reach a session that is
//     doomed to fail at the encoding step.
//   - The CLI "hardsub check" command renders every result, including the
//     Telegram token check that the runtime performs implicitly.
package preflight
