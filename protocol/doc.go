package protocol

// This package implements parsing and serialising of the ServerQuery
// wire format, the line-oriented text protocol used to administer a
// TeamSpeak 3 server instance over TCP.
//
// - `Command` - A client instruction plus its keyed parameters and flags.
// - `Line`    - One parsed line received from the server.
// - `Response` - Everything the server sent back for one command: the
//                data lines followed by the terminal status line.
//
// === General Syntax
//
// - lines are `\n` delimited
// - tokens within a line are separated by single spaces
// - a command line looks like
//
//   ```
//     <command> [<key>=<value>]* [-<flag>]*
//   ```
//
// - values are escaped: characters that are significant to the wire
//   format (space, pipe, slash, backslash and a handful of control
//   characters) are replaced by two-character backslash sequences, e.g.
//   a space becomes `\s`. See `Escape`/`Unescape`.
//
// === Repeated keys
//
// A key may carry a whole repeated group, encoded as several
// `key=value` pieces joined by `|` inside one token
//
//   ```
//     clientkick clid=1|clid=2|clid=3
//   ```
//
// Parsing collects the piece values into an ordered Sequence stored
// under the shared key name.
//
// === Responses
//
// After the greeting banner (`TS3`), every request produces zero or
// more data lines followed by exactly one status line
//
//   ```
//     > serverlist
//     < virtualserver_id=1 virtualserver_name=Gaming
//     < error id=0 msg=ok
//   ```
//
// A data line has no leading command token (its first token is already
// a `key=value` pair). The status line always carries the command name
// `error`, an `id` key and usually a human readable `msg`. `id=0`
// denotes success; anything else is a server reported failure which is
// handed to callers as data, never as a mid-cycle abort.
