// Package publish packages an assembled site into an artifact and deploys it.
//
// Deployers replace the live site wholesale: a DirectoryDeployer swaps a staged copy
// into place and a GitBranchDeployer force-pushes a single-commit branch. A Publisher
// wraps a Deployer so that at most one deployment is in flight at a time.
package publish
