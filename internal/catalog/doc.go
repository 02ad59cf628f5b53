// Package catalog provides the in-memory model of the ODPI-C API built from
// the hand-curated YAML documentation file (doc.yaml).
//
// The catalog is loaded once per run and is read-only afterwards, except for
// the one-time enum description rewrite performed before any binding pass.
//
// # Schema Overview
//
// The document is a top-level sequence of data types:
//
//	- name: dpiExecMode
//	  kind: enum                 # enum | opaque struct | struct | union
//	  underlying_type: uint32_t  # uint8_t | uint16_t | uint32_t (optional)
//	  desc: |
//	    Execution modes for dpiStmt_execute().
//	  members:
//	    - name: DPI_MODE_EXEC_DEFAULT
//	      desc: |
//	        Default mode.
//	- name: dpiConn
//	  kind: opaque struct
//	  desc: |
//	    Connection handle.
//	  functions:
//	    - name: dpiConn_ping
//	      desc: |
//	        Pings the database.
//	      round_trips: Yes        # Yes | No | Maybe
//	      return: int
//	      params:                 # required, may be empty
//	        - name: conn
//	          type: dpiConn *
//	          mode: IN            # IN | OUT | IN/OUT
//	          desc: |
//	            The connection to ping.
//
// # Derived Indexes
//
//   - RoundTripsMap: function name to round-trip classification
//   - UnderlyingTypeMap: enum member name to fixed-width integer type
//   - NameToDesc: type, function or enum constant name, or "Type::member"
//     for struct and union fields, to description
//
// # Round-Trip Classification
//
// Classifier overlays the catalog classification with extra entries (from
// configuration or from the upstream round_trips.rst) and partitions the
// function surface into functions that never block on the network (No) and
// functions that may (Yes, Maybe).
package catalog
