package engine

// Live process view. The listing's own query id and in-flight KILL
// statements are excluded. Settings['log_comment'] is empty when unset.
const listProcessesSQL = `
SELECT
    query_id,
    user,
    query,
    toFloat64(elapsed)          AS elapsed_seconds,
    toUInt64(read_rows)         AS read_rows,
    toUInt64(read_bytes)        AS read_bytes,
    toInt64(memory_usage)       AS memory_usage,
    client_name,
    toString(address)           AS client_address,
    Settings['log_comment']     AS log_comment
FROM system.processes
WHERE is_initial_query = 1
  AND query_id != ?
  AND NOT startsWith(upper(trimLeft(query)), 'KILL QUERY')
ORDER BY elapsed DESC`

// Historical log. QueryStart rows are skipped so each execution appears
// once; statements issued by this service for introspection are excluded.
const queryLogSQL = `
SELECT
    query_id,
    user,
    query,
    toFloat64(query_duration_ms) / 1000 AS elapsed_seconds,
    toUInt64(read_rows)                 AS read_rows,
    toUInt64(read_bytes)                AS read_bytes,
    toInt64(memory_usage)               AS memory_usage,
    client_name,
    toString(address)                   AS client_address,
    log_comment,
    query_start_time_microseconds       AS started_at,
    toString(type)                      AS status,
    exception
FROM system.query_log
WHERE type != 'QueryStart'
  AND is_initial_query = 1
  AND event_time >= ?
  AND NOT startsWith(query_id, ?)
ORDER BY event_time_microseconds DESC
LIMIT ?`

// KILL QUERY returns one row per matched running query and none when the
// target has already finished.
const killQuerySQL = `KILL QUERY WHERE query_id = ? ASYNC`
