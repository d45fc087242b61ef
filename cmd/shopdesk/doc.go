// Command shopdesk is the admin CLI.
//
//	shopdesk login -e admin@shop.test
//	shopdesk list orders --status pending --sort createdAt --desc
//	shopdesk list products --search laptop --export s3://exports/laptops.json
//	shopdesk get product 65f0c2
//	shopdesk order status 65f0c2 shipped
//	shopdesk order transitions pending
//	shopdesk repair status 66a1 completed --yes
//	shopdesk about create --name "Tech Corner" --value honesty --value speed
//	shopdesk stats --from 2024-01-01
//	shopdesk devtools --addr :8090
//
// Every command builds its own store, runs one request through it and
// exits; the session token survives in the configured token store.
package main
