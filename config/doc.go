// Copyright 2021 The proxyx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package config loads the YAML configuration of the proxyx command and
keeps it up to date as the file changes.

A configuration names the target, the request to send, and the proxies
to try in order:

	target: https://www.example.com/health
	method: GET
	headers:
	  Accept: application/json
	timeout: 10s
	proxies:
	  - url: http://proxy-a.example.com:3128
	  - type: socks5
	    host: proxy-b.example.com
	    port: 1080
	    username: alice
	    password: secret
	    timeout: 20s
	watch:
	  interval: 1m
	logging:
	  level: info
	  format: json
	metrics:
	  addr: ":9090"
*/
package config
